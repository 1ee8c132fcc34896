package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/zfogg/screams/backend/internal/models"
)

var (
	bold    = color.New(color.Bold)
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	info    = color.New(color.FgCyan)
	faint   = color.New(color.Faint)
)

func printSuccess(format string, args ...any) {
	success.Printf("✓ "+format+"\n", args...)
}

func printError(format string, args ...any) {
	failure.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// printResult prints v as JSON when --output=json, otherwise calls text
func printResult(v any, text func()) error {
	if outputFmt == "json" {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	text()
	return nil
}

func printScream(s models.Scream) {
	bold.Printf("@%s", s.UserHandle)
	if s.IsVerifiedUser {
		info.Print(" ✔")
	}
	faint.Printf("  %s  %s\n", s.ID, ago(s.CreatedAt))
	fmt.Printf("  %s\n", s.Body)
	faint.Printf("  ♥ %d  💬 %d\n", s.LikeCount, s.CommentCount)
}

func printComment(c models.Comment) {
	fmt.Print("    ")
	bold.Printf("@%s", c.UserHandle)
	faint.Printf("  %s\n", ago(c.CreatedAt))
	fmt.Printf("    %s\n", c.Body)
}

func printNotification(n models.Notification) {
	marker := info.Sprint("●")
	if n.Read {
		marker = faint.Sprint("○")
	}
	verb := "liked"
	if n.Type == models.NotificationComment {
		verb = "commented on"
	}
	fmt.Printf("%s @%s %s your scream %s  ", marker, n.Sender, verb, n.ScreamID)
	faint.Printf("%s  [%s]\n", ago(n.CreatedAt), n.ID)
}

func ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Local().Format("Jan 2 2006")
	}
}
