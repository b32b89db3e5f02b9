package power

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

var throttleFlags = []struct {
	bit  uint
	text string
}{
	{0, "Under-voltage detected"},
	{1, "Arm frequency capped"},
	{2, "Currently throttled"},
	{3, "Soft temperature limit active"},
	{16, "Under-voltage has occurred"},
	{17, "Arm frequency capping has occurred"},
	{18, "Throttling has occurred"},
	{19, "Soft temperature limit has occurred"},
}

// Status decodes "vcgencmd get_throttled" into a readable summary. A clear
// register reads "OK".
func (c *Collector) Status(ctx context.Context) (string, error) {
	raw, err := c.query(ctx, "throttled", "get_throttled")
	if err != nil {
		return "", err
	}

	mask, err := strconv.ParseUint(strings.TrimPrefix(raw, "0x"), 16, 32)
	if err != nil {
		return "", fmt.Errorf("parse throttled %q: %w", raw, err)
	}

	return DecodeThrottled(mask), nil
}

func DecodeThrottled(mask uint64) string {
	if mask == 0 {
		return "OK"
	}

	var parts []string
	for _, f := range throttleFlags {
		if mask&(1<<f.bit) != 0 {
			parts = append(parts, f.text)
		}
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Unknown (0x%x)", mask)
	}
	return strings.Join(parts, "; ")
}
