package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var screamsCmd = &cobra.Command{
	Use:     "screams",
	Aliases: []string{"scream"},
	Short:   "Read, post and react to screams",
}

var screamsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all screams, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		screams, err := client().ListScreams()
		if err != nil {
			return err
		}
		return printResult(screams, func() {
			if len(screams) == 0 {
				info.Println("No screams yet")
			}
			for _, s := range screams {
				printScream(s)
			}
		})
	},
}

var screamsPostCmd = &cobra.Command{
	Use:   "post <body...>",
	Short: "Post a scream",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scream, err := client().PostScream(strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printResult(scream, func() {
			printSuccess("Posted %s", scream.ID)
		})
	},
}

var screamsGetCmd = &cobra.Command{
	Use:   "get <screamId>",
	Short: "Show a scream and its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scream, err := client().GetScream(args[0])
		if err != nil {
			return err
		}
		return printResult(scream, func() {
			printScream(scream.Scream)
			for _, c := range scream.Comments {
				printComment(c)
			}
		})
	},
}

var screamsDeleteCmd = &cobra.Command{
	Use:   "delete <screamId>",
	Short: "Delete one of your screams",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := client().DeleteScream(args[0])
		if err != nil {
			return err
		}
		printSuccess("%s", msg)
		return nil
	},
}

var screamsLikeCmd = &cobra.Command{
	Use:   "like <screamId>",
	Short: "Like a scream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scream, err := client().Like(args[0])
		if err != nil {
			return err
		}
		return printResult(scream, func() {
			printSuccess("Liked (%d likes)", scream.LikeCount)
		})
	},
}

var screamsUnlikeCmd = &cobra.Command{
	Use:   "unlike <screamId>",
	Short: "Remove your like",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scream, err := client().Unlike(args[0])
		if err != nil {
			return err
		}
		return printResult(scream, func() {
			printSuccess("Unliked (%d likes)", scream.LikeCount)
		})
	},
}

var screamsCommentCmd = &cobra.Command{
	Use:   "comment <screamId> <body...>",
	Short: "Comment on a scream",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		comment, err := client().Comment(args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return printResult(comment, func() {
			printSuccess("Commented %s", comment.ID)
		})
	},
}

func init() {
	screamsCmd.AddCommand(
		screamsListCmd,
		screamsPostCmd,
		screamsGetCmd,
		screamsDeleteCmd,
		screamsLikeCmd,
		screamsUnlikeCmd,
		screamsCommentCmd,
	)
}
