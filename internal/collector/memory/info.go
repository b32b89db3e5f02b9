package memory

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type memInfo struct {
	memTotal     uint64
	memAvailable uint64
	swapTotal    uint64
	swapFree     uint64
}

func (c *Collector) readMemInfo() (memInfo, error) {
	var info memInfo

	file, err := os.Open(c.meminfoPath)
	if err != nil {
		return info, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		key := strings.TrimSuffix(fields[0], ":")
		valueKB, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}

		switch key {
		case "MemTotal":
			info.memTotal = valueKB * 1024
		case "MemAvailable":
			info.memAvailable = valueKB * 1024
		case "SwapTotal":
			info.swapTotal = valueKB * 1024
		case "SwapFree":
			info.swapFree = valueKB * 1024
		}
	}

	if err := scanner.Err(); err != nil {
		return info, fmt.Errorf("read meminfo: %w", err)
	}

	return info, nil
}
