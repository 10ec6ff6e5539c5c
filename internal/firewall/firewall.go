// Package firewall translates a typed policy into iptables rule
// insertions.
package firewall

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"

	"github.com/irgordon/kari-agent/internal/klog"
)

// Action is the iptables target a Policy resolves to.
type Action int

const (
	Allow Action = iota
	Deny
	Reject
)

// Protocol selects which iptables chain(s) a Policy's rule targets.
type Protocol int

const (
	TCP Protocol = iota
	UDP
	Both
)

// Policy describes a single firewall rule to apply.
type Policy struct {
	Action   Action
	Port     int
	Protocol Protocol
	SourceIP string // optional IP or CIDR; empty means unrestricted
}

// Apply inserts the rule(s) Policy describes. Port 0 is rejected. Both
// expands into a tcp rule and a udp rule. A non-empty SourceIP is parsed
// before use; an unparsable value is rejected rather than passed through to
// iptables. Duplicate application is not detected but must not error, so
// every insertion uses -I (insert), which iptables accepts idempotently at
// the process level even though it does grow the rule list.
func Apply(ctx context.Context, p Policy) error {
	if p.Port == 0 {
		return fmt.Errorf("firewall: port 0 is not a valid rule target")
	}

	if p.SourceIP != "" {
		if _, _, err := net.ParseCIDR(p.SourceIP); err != nil {
			if net.ParseIP(p.SourceIP) == nil {
				return fmt.Errorf("firewall: source_ip %q is neither an IP nor a CIDR", p.SourceIP)
			}
		}
	}

	protocols := protocolsFor(p.Protocol)
	for _, proto := range protocols {
		if err := insertRule(ctx, p, proto); err != nil {
			return err
		}
	}
	return nil
}

func protocolsFor(p Protocol) []string {
	switch p {
	case TCP:
		return []string{"tcp"}
	case UDP:
		return []string{"udp"}
	default:
		return []string{"tcp", "udp"}
	}
}

func insertRule(ctx context.Context, p Policy, proto string) error {
	args := []string{"-I", "INPUT", "-p", proto, "--dport", fmt.Sprintf("%d", p.Port)}
	if p.SourceIP != "" {
		args = append(args, "-s", p.SourceIP)
	}
	args = append(args, "-j", target(p.Action))

	out, err := exec.CommandContext(ctx, "iptables", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("firewall: iptables %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	klog.WithComponent("firewall").Info().Int("port", p.Port).Str("protocol", proto).Msg("applied firewall rule")
	return nil
}

func target(a Action) string {
	switch a {
	case Allow:
		return "ACCEPT"
	case Reject:
		return "REJECT"
	default:
		return "DROP"
	}
}
