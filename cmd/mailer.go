/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/agegate/webapp/config"
	"github.com/agegate/webapp/internal/mail"
	"github.com/agegate/webapp/internal/mq"
	"github.com/spf13/cobra"
)

// mailerCmd represents the mailer command. It is the delivery worker paired
// with the queue-backed mail backends: it consumes rendered messages from the
// broker and sends them over SMTP.
var mailerCmd = &cobra.Command{
	Use:   "mailer",
	Short: "Consume queued mail and deliver it over SMTP",
	Long: `Consume queued mail and deliver it over SMTP. Usage:

	agegate mailer
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		broker, err := mq.NewBroker(cmd.Context(), cfg.Mail)
		if err != nil {
			return err
		}
		defer func() {
			_ = broker.Close()
		}()

		sender := mail.NewSMTPNotifier(cfg.Mail.SMTP, cfg.Mail.From)

		return broker.Subscribe(cmd.Context(), cfg.Mail.Queue, func(ctx context.Context, msg mq.Message) error {
			var m mail.Message
			if err := json.Unmarshal(msg.Data, &m); err != nil {
				// drop malformed payloads instead of redelivering forever
				fmt.Fprintf(os.Stderr, "mailer: dropping malformed message %s: %v\n", msg.ID, err)
				return nil
			}
			return sender.Send(ctx, m)
		})
	},
}

func init() {
	rootCmd.AddCommand(mailerCmd)
}
