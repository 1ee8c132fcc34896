package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the ID token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		token, err := client().Login(email, password)
		if err != nil {
			return err
		}
		if err := saveToken(token); err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
		printSuccess("Logged in as %s", email)
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and store the ID token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		handle, _ := cmd.Flags().GetString("handle")

		token, err := client().Signup(email, password, handle)
		if err != nil {
			return err
		}
		if err := saveToken(token); err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
		printSuccess("Welcome @%s! Check %s for a verification link.", handle, email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored ID token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := saveToken(""); err != nil {
			return err
		}
		printSuccess("Logged out")
		return nil
	},
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Password recovery",
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset <email>",
	Short: "Mail a password reset link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := client().ResetPassword(args[0])
		if err != nil {
			return err
		}
		return reportMail(res, "Reset link sent to "+args[0])
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Email verification",
}

var verifyResendCmd = &cobra.Command{
	Use:   "resend",
	Short: "Mail a fresh verification link",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := client().ResendVerification()
		if err != nil {
			return err
		}
		return reportMail(res, "Verification link sent")
	},
}

func reportMail(res *mailResponse, ok string) error {
	return printResult(res, func() {
		if res.Success {
			printSuccess("%s", ok)
			return
		}
		msg := "unknown error"
		if res.Err != nil {
			msg = *res.Err
		}
		printError("Mail not sent: %s", msg)
	})
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	signupCmd.Flags().String("email", "", "Account email")
	signupCmd.Flags().String("password", "", "Account password (at least 6 characters)")
	signupCmd.Flags().String("handle", "", "Public handle")
	_ = signupCmd.MarkFlagRequired("email")
	_ = signupCmd.MarkFlagRequired("password")
	_ = signupCmd.MarkFlagRequired("handle")

	passwordCmd.AddCommand(passwordResetCmd)
	verifyCmd.AddCommand(verifyResendCmd)
}
