package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmehdipour/sms-broker/internal/broker"
	"github.com/jmehdipour/sms-broker/internal/config"
	"github.com/jmehdipour/sms-broker/internal/logger"
	"github.com/jmehdipour/sms-broker/internal/model"
	smsSvc "github.com/jmehdipour/sms-broker/internal/service/sms"
	"github.com/spf13/cobra"
)

var (
	sendPhone  string
	sendText   string
	sendLegacy bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a single SMS through the gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(sendPhone) == "" || strings.TrimSpace(sendText) == "" {
			return fmt.Errorf("--phone and --text are required")
		}

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		zl := logger.Init(cfg.Log.Level)
		defer func() { _ = zl.Sync() }()

		client, err := broker.New(cfg.Gateway.Broker())
		if err != nil {
			return fmt.Errorf("gateway client: %w", err)
		}

		// no audit database for one-off sends
		svc := smsSvc.New(client, nil, zl)
		msg, sendErr := svc.Send(cmd.Context(), smsSvc.SourceCLI, 0, sendPhone, sendText)

		if sendLegacy {
			fmt.Fprintln(cmd.OutOrStdout(), msg.Legacy())
			return nil
		}

		out, err := json.MarshalIndent(msg, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return sendOutcome(msg, sendErr)
	},
}

// sendOutcome turns anything but an accepted send into a non-zero exit.
func sendOutcome(msg model.Message, err error) error {
	if err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	if msg.Status != model.StatusSent {
		return fmt.Errorf("gateway %s the message with status %d", msg.Status, msg.StatusCode)
	}
	return nil
}

func init() {
	sendCmd.Flags().StringVar(&sendPhone, "phone", "", "recipient phone number, passed to the gateway as is")
	sendCmd.Flags().StringVar(&sendText, "text", "", "message body")
	sendCmd.Flags().BoolVar(&sendLegacy, "legacy", false, "print only the raw gateway body or transport error")
}
