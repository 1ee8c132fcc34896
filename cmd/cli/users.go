package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zfogg/screams/backend/internal/models"
)

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show your profile, likes and latest notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		me, err := client().Me()
		if err != nil {
			return err
		}
		return printResult(me, func() {
			printUser(me.Credentials)
			fmt.Printf("Likes: %d\n", len(me.Likes))
			if len(me.Notifications) > 0 {
				bold.Println("\nNotifications")
				for _, n := range me.Notifications {
					printNotification(n)
				}
			}
		})
	},
}

var userCmd = &cobra.Command{
	Use:   "user <handle>",
	Short: "Show a user's profile and screams",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := client().User(args[0])
		if err != nil {
			return err
		}
		return printResult(profile, func() {
			printUser(profile.User)
			fmt.Println()
			for _, s := range profile.Screams {
				printScream(s)
			}
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Edit your profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Set bio, website or location; omitted fields are unchanged",
	RunE: func(cmd *cobra.Command, args []string) error {
		var details models.UserDetails
		details.Bio, _ = cmd.Flags().GetString("bio")
		details.Website, _ = cmd.Flags().GetString("website")
		details.Location, _ = cmd.Flags().GetString("location")

		msg, err := client().UpdateDetails(details)
		if err != nil {
			return err
		}
		printSuccess("%s", msg)
		return nil
	},
}

var profileImageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Upload a new profile image (png or jpeg)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		contentType := mime.TypeByExtension(filepath.Ext(path))

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		msg, err := client().UploadImage(filepath.Base(path), contentType, f)
		if err != nil {
			return err
		}
		printSuccess("%s", msg)
		return nil
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Manage notifications",
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <notificationId...>",
	Short: "Mark notifications read",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := client().MarkNotificationsRead(args)
		if err != nil {
			return err
		}
		printSuccess("%s", msg)
		return nil
	},
}

func printUser(u models.User) {
	bold.Printf("@%s", u.Handle)
	if u.IsVerified {
		info.Print(" ✔")
	}
	fmt.Println()
	if u.Bio != "" {
		fmt.Println(u.Bio)
	}
	if u.Location != "" {
		faint.Printf("📍 %s  ", u.Location)
	}
	if u.Website != "" {
		faint.Printf("🔗 %s", u.Website)
	}
	if u.Location != "" || u.Website != "" {
		fmt.Println()
	}
	faint.Printf("Joined %s\n", u.CreatedAt.Local().Format("January 2006"))
}

func init() {
	profileUpdateCmd.Flags().String("bio", "", "Short bio")
	profileUpdateCmd.Flags().String("website", "", "Website; http:// is added when no scheme is given")
	profileUpdateCmd.Flags().String("location", "", "Location")
	profileCmd.AddCommand(profileUpdateCmd, profileImageCmd)

	notificationsCmd.AddCommand(notificationsReadCmd)
}
