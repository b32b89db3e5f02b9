package update

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

var aptSimulate = []string{"apt-get", "-s", "upgrade"}

// CountAptUpdates returns the number of packages a simulated upgrade would
// install.
func CountAptUpdates(ctx context.Context, run runner) (int, error) {
	out, err := run.Run(ctx, aptSimulate)
	if err != nil {
		return 0, fmt.Errorf("apt simulation: %w", err)
	}
	return countInst(out), nil
}

func countInst(out string) int {
	n := 0
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "Inst ") {
			n++
		}
	}
	return n
}
