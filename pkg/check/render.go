package check

import (
	"fmt"
	"strings"

	"github.com/styliteag/checkmk-plugin-zfs-snapshot-age/pkg/models"
)

// FormatLine serializes one result into the agent line format:
//
//	<code> <label>:<entity> <name>=<value>;<warn>;<crit>|... <message>
//
// The metrics block contains no spaces; "-" stands in when a result
// carries no metrics. A single space separates the blocks.
func FormatLine(label string, res *models.Result) string {
	metrics := "-"
	if len(res.Metrics) > 0 {
		parts := make([]string, 0, len(res.Metrics))
		for _, m := range res.Metrics {
			if m.Warn == "" && m.Crit == "" {
				parts = append(parts, fmt.Sprintf("%s=%s", m.Name, m.Value))
			} else {
				parts = append(parts, fmt.Sprintf("%s=%s;%s;%s", m.Name, m.Value, m.Warn, m.Crit))
			}
		}
		metrics = strings.Join(parts, "|")
	}

	return fmt.Sprintf("%d %s:%s %s %s", res.Severity.Code(), label, res.Entity, metrics, res.Message)
}
