package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/keepsafe-dev/keepsafe/internal/common"
	"github.com/keepsafe-dev/keepsafe/internal/session"
)

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// ShowSettings prints the decrypted settings of the unlocked session.
// When the session is locked, only the lock status is reported.
func (a *App) ShowSettings(ctx context.Context) error {
	st, ok := a.session.Settings()
	if !ok {
		fmt.Printf("Settings unavailable, session is %s\n", a.session.State())
		return nil
	}

	fmt.Println("Settings:")
	fmt.Printf("  api key:       %s\n", maskSecret(st.APIKey))
	fmt.Printf("  model:         %s\n", st.Model)
	fmt.Printf("  voice:         %s\n", st.VoiceName)
	fmt.Printf("  language:      %s\n", st.Language)
	fmt.Printf("  system prompt: %s\n", st.SystemPrompt)
	return nil
}

// EditSettings interactively updates the settings of the unlocked session.
// Empty answers keep the current value.
func (a *App) EditSettings(ctx context.Context) error {
	cur, ok := a.session.Settings()
	if !ok {
		fmt.Printf("Settings unavailable, session is %s\n", a.session.State())
		return nil
	}

	next := cur
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"API key (" + maskSecret(cur.APIKey) + ")", &next.APIKey},
		{"Model (" + cur.Model + ")", &next.Model},
		{"Voice (" + cur.VoiceName + ")", &next.VoiceName},
		{"Language (" + cur.Language + ")", &next.Language},
		{"System prompt", &next.SystemPrompt},
	}
	for _, f := range fields {
		v, err := getSimpleText(a.reader, f.prompt+", empty keeps current", os.Stdout)
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = v
		}
	}

	if err := a.session.SaveSettings(ctx, next, nil); err != nil {
		if errors.Is(err, common.ErrNotAuthenticated) {
			fmt.Println("Session locked, log in or unlock first")
			return nil
		}
		return err
	}
	fmt.Println("Settings saved")
	return nil
}

// ResetSettings discards the stored settings blob and replaces it with
// defaults. This is the recovery path when the blob cannot be decrypted.
func (a *App) ResetSettings(ctx context.Context) error {
	answer, err := getSimpleText(a.reader,
		"Reset settings to defaults? Type 'yes' to confirm", os.Stdout)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Println("Cancelled")
		return nil
	}

	if err := a.session.ResetSettings(ctx); err != nil {
		return err
	}
	fmt.Println("Settings reset to defaults")
	return nil
}

// loadSettingsOrOfferReset loads settings after an unlock and, when the
// stored blob turns out to be corrupt, offers the reset recovery path.
func (a *App) loadSettingsOrOfferReset(ctx context.Context) {
	_, _, err := a.session.LoadSettings(ctx, nil)
	if err == nil {
		return
	}
	// The cached password just verified against the credential registry,
	// so a decrypt failure here means the stored blob itself is unreadable.
	if session.IsCorrupt(err) || errors.Is(err, common.ErrInvalidPassword) {
		fmt.Println("Stored settings could not be read, run 'reset-settings' to start over")
		return
	}
	fmt.Println("Could not load settings:", err)
}
