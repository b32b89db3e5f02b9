package system

import (
	"bufio"
	"os"
	"strings"
)

func (c *Collector) getOSName() string {
	f, err := os.Open(c.osRelease)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "PRETTY_NAME=") {
			return strings.Trim(strings.SplitN(line, "=", 2)[1], `"`)
		}
	}

	return ""
}
