package cli

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/getmockd/wsgate/pkg/cli/internal/output"
	"github.com/getmockd/wsgate/pkg/subprotocol"
)

// ProbeOutput is the result of probing a gateway.
type ProbeOutput struct {
	URL      string   `json:"url"`
	Offered  []string `json:"offered"`
	Status   int      `json:"status"`
	Accepted string   `json:"accepted,omitempty"`
	Family   string   `json:"family"`
}

var (
	probeSubprotocols []string
	probeTimeout      time.Duration
	probeInsecure     bool
	probeOrigin       string
)

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Open a WebSocket to a gateway and report the accepted sub-protocol",
	Example: `  wsgate probe ws://localhost:8080/ws -p v10.stomp -p v12.stomp
  wsgate probe wss://gateway.example.com/ws -p mqtt --insecure`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := probe(args[0], probeSubprotocols, probeOrigin, probeTimeout, probeInsecure)
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), out)
		}

		w := output.Table(cmd.OutOrStdout())
		fmt.Fprintf(w, "URL:\t%s\n", out.URL)
		fmt.Fprintf(w, "Status:\t%d\n", out.Status)
		if out.Accepted == "" {
			fmt.Fprintf(w, "Accepted:\t(none)\n")
		} else {
			fmt.Fprintf(w, "Accepted:\t%s\n", out.Accepted)
		}
		fmt.Fprintf(w, "Family:\t%s\n", out.Family)
		return w.Flush()
	},
}

func init() {
	probeCmd.Flags().StringArrayVarP(&probeSubprotocols, "subprotocol", "p", nil, "Sub-protocol to offer (repeatable, in preference order)")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "Handshake timeout")
	probeCmd.Flags().BoolVar(&probeInsecure, "insecure", false, "Skip TLS certificate verification")
	probeCmd.Flags().StringVar(&probeOrigin, "origin", "", "Origin header to send")
	rootCmd.AddCommand(probeCmd)
}

func probe(url string, offered []string, origin string, timeout time.Duration, insecure bool) (*ProbeOutput, error) {
	dialer := websocket.Dialer{
		Subprotocols:     offered,
		HandshakeTimeout: timeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	if insecure {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
	}

	var header http.Header
	if origin != "" {
		header = http.Header{"Origin": []string{origin}}
	}

	conn, resp, err := dialer.Dial(url, header)
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil, fmt.Errorf("handshake rejected: %s", resp.Status)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer conn.Close()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	if offered == nil {
		offered = []string{}
	}
	return &ProbeOutput{
		URL:      url,
		Offered:  offered,
		Status:   resp.StatusCode,
		Accepted: conn.Subprotocol(),
		Family:   subprotocol.Classify(offered).String(),
	}, nil
}
