// Package assign computes gift-target assignments.
package assign

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// MinParticipants is the smallest roster that can be assigned.
const MinParticipants = 3

var (
	ErrTooFewNames   = fmt.Errorf("roster needs at least %d names", MinParticipants)
	ErrDuplicateName = errors.New("roster contains a duplicate name")
	ErrEmptyName     = errors.New("roster contains an empty name")
)

// Shuffler permutes n elements in place through swap.
// rand.Shuffle satisfies it.
type Shuffler func(n int, swap func(i, j int))

// CleanNames trims every name and drops the blank ones, keeping input order.
func CleanNames(raw []string) []string {
	names := make([]string, 0, len(raw))
	for _, name := range raw {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ValidateRoster checks that names can form a single gift cycle.
func ValidateRoster(names []string) error {
	if len(names) < MinParticipants {
		return fmt.Errorf("%w: got %d", ErrTooFewNames, len(names))
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" {
			return ErrEmptyName
		}
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		seen[name] = true
	}
	return nil
}

// Assign maps every name to the name it gifts to, using a uniform shuffle.
func Assign(names []string) (map[string]string, error) {
	return AssignWith(rand.Shuffle, names)
}

// AssignWith shuffles a copy of names and links each position to the next,
// wrapping around. The result is one cycle through every name, so nobody
// draws themself.
func AssignWith(shuffle Shuffler, names []string) (map[string]string, error) {
	if err := ValidateRoster(names); err != nil {
		return nil, err
	}

	order := make([]string, len(names))
	copy(order, names)
	shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	targets := make(map[string]string, len(order))
	for i, name := range order {
		targets[name] = order[(i+1)%len(order)]
	}
	return targets, nil
}

// CycleLength follows targets from start and returns the number of hops
// needed to come back. It returns 0 if the chain breaks or never returns.
func CycleLength(targets map[string]string, start string) int {
	current := start
	for hops := 1; hops <= len(targets); hops++ {
		next, ok := targets[current]
		if !ok {
			return 0
		}
		if next == start {
			return hops
		}
		current = next
	}
	return 0
}
