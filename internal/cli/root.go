package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/keepsafe-dev/keepsafe/internal/session"
)

func (a *App) getStatus() string {
	u := a.session.CurrentUser()
	if u == nil {
		return ""
	}
	st := a.session.State()
	s := u.Username + " " + st.String()
	if st == session.StateUnlocked {
		s = fmt.Sprintf("%s %ds", s, a.session.Remaining())
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) printHelp() {
	if !a.isLoggedIn() {
		fmt.Println("Available commands: register, login, help, exit")
		return
	}
	fmt.Println("Available commands:")
	fmt.Println("  status                      show session state and lock countdown")
	fmt.Println("  unlock                      unlock a locked session")
	fmt.Println("  settings / edit-settings    show or change settings")
	fmt.Println("  reset-settings              replace unreadable settings with defaults")
	fmt.Println("  conversations / show-conv / new-conv / delete-conv")
	fmt.Println("  events / add-event / remove-event / agenda")
	fmt.Println("  logout, delete-account, exit")
}

// Root runs the interactive read-eval-print loop until EOF, "exit",
// or context cancellation.
func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to keepsafe CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	a.session.OnLock(func() {
		fmt.Println("\nSession locked")
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Printf("keepsafe %s> ", a.getStatus())
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		var err error
		switch parts[0] {
		case "help":
			a.printHelp()
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "unlock":
			err = a.Unlock(ctx)
		case "status":
			err = a.Status(ctx)
		case "settings":
			err = a.ShowSettings(ctx)
		case "edit-settings":
			err = a.EditSettings(ctx)
		case "reset-settings":
			err = a.ResetSettings(ctx)
		case "conversations":
			err = a.ListConversations(ctx)
		case "show-conv":
			err = a.ShowConversation(ctx)
		case "new-conv":
			err = a.NewConversation(ctx)
		case "delete-conv":
			err = a.DeleteConversation(ctx)
		case "events":
			err = a.ListEvents(ctx)
		case "add-event":
			err = a.AddEvent(ctx)
		case "remove-event":
			err = a.RemoveEvent(ctx)
		case "agenda":
			err = a.Agenda(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "delete-account":
			err = a.DeleteAccount(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", parts[0])
		}

		if err != nil {
			fmt.Println("Error:", err)
		}
	}
}
