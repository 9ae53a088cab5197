package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/wsgate/pkg/cli/internal/output"
	"github.com/getmockd/wsgate/pkg/subprotocol"
)

// NegotiateOutput is the result of an offline negotiation.
type NegotiateOutput struct {
	Offered  []string `json:"offered"`
	Family   string   `json:"family"`
	Selected string   `json:"selected"`
	Echoed   bool     `json:"echoed"`
}

var negotiateCmd = &cobra.Command{
	Use:   "negotiate [sub-protocol...]",
	Short: "Show which sub-protocol the gateway would accept for an offer",
	Long: `Run sub-protocol negotiation locally against the configured priority tables.
Arguments are offered tokens in client order; a single comma-separated argument
is split like a Sec-WebSocket-Protocol header.`,
	Example: `  wsgate negotiate v10.stomp v12.stomp
  wsgate negotiate "mqtt, mqttv3.1"
  wsgate negotiate --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(nil)
		if err != nil {
			return err
		}
		reg, err := cfg.Registry()
		if err != nil {
			return err
		}

		out := negotiate(reg, args)
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), out)
		}

		w := output.Table(cmd.OutOrStdout())
		fmt.Fprintf(w, "Offered:\t%s\n", strings.Join(out.Offered, ", "))
		fmt.Fprintf(w, "Family:\t%s\n", out.Family)
		fmt.Fprintf(w, "Selected:\t%s\n", out.Selected)
		if !out.Echoed {
			fmt.Fprintf(w, "Echoed:\tno (not offered)\n")
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(negotiateCmd)
}

func negotiate(reg *subprotocol.Registry, args []string) NegotiateOutput {
	var offered []string
	for _, arg := range args {
		for _, tok := range strings.Split(arg, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				offered = append(offered, tok)
			}
		}
	}
	if offered == nil {
		offered = []string{}
	}

	res := subprotocol.Negotiate(reg, offered)
	echoed := false
	for _, tok := range offered {
		if tok == res.Token {
			echoed = true
			break
		}
	}
	return NegotiateOutput{
		Offered:  offered,
		Family:   res.Family.String(),
		Selected: res.Token,
		Echoed:   echoed,
	}
}
