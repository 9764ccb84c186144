package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/keepsafe-dev/keepsafe/internal/conversations"
)

// ListConversations prints the stored conversations, most recent first.
// The current conversation is marked with an asterisk.
func (a *App) ListConversations(ctx context.Context) error {
	return a.withSession(ctx, func(userID string, password []byte) error {
		list, err := a.conv.List(ctx, userID, password)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No conversations yet")
			return nil
		}

		currentID, err := a.conv.CurrentID(ctx, userID)
		if err != nil {
			return err
		}

		for _, c := range list {
			marker := " "
			if c.ID == currentID {
				marker = "*"
			}
			fmt.Printf("%s %s  %-30q  %d message(s)  %s\n",
				marker, c.ID, c.Title, len(c.Messages), c.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	})
}

// ShowConversation prints the messages of one conversation and makes it
// the current one.
func (a *App) ShowConversation(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Conversation id", os.Stdout)
	if err != nil {
		return err
	}

	return a.withSession(ctx, func(userID string, password []byte) error {
		c, err := a.conv.Get(ctx, userID, password, id)
		if err != nil {
			return err
		}
		if c == nil {
			fmt.Println("No such conversation")
			return nil
		}

		fmt.Printf("%s (%d message(s))\n", c.Title, len(c.Messages))
		for _, m := range c.Messages {
			fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), m.Role, m.Content)
		}
		return a.conv.SetCurrentID(ctx, userID, c.ID)
	})
}

// NewConversation creates a conversation with a single user message and
// selects it as current.
func (a *App) NewConversation(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	body, err := GetMultiline(a.reader, "First message", os.Stdout)
	if err != nil {
		return err
	}

	return a.withSession(ctx, func(userID string, password []byte) error {
		c := conversations.Conversation{Title: title}
		if body != "" {
			c.Messages = []conversations.Message{{Role: "user", Content: body, Timestamp: time.Now()}}
		}
		saved, err := a.conv.Save(ctx, userID, password, c)
		if err != nil {
			return err
		}
		if err := a.conv.SetCurrentID(ctx, userID, saved.ID); err != nil {
			return err
		}
		fmt.Println("Created conversation", saved.ID)
		return nil
	})
}

// DeleteConversation removes one conversation by id.
func (a *App) DeleteConversation(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Conversation id", os.Stdout)
	if err != nil {
		return err
	}

	return a.withSession(ctx, func(userID string, password []byte) error {
		if err := a.conv.Remove(ctx, userID, password, id); err != nil {
			return err
		}
		fmt.Println("Deleted")
		return nil
	})
}
