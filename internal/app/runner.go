package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/pflag"
)

// IRunner represents a runnable command in the application layer.
type IRunner interface {
	Name() string
	Desc() string
	Init(f *pflag.FlagSet)
	PreRun(ctx context.Context) error
	Run(ctx context.Context) error
	PostRun(ctx context.Context) error
}

var runnerRegistry = map[string]func() IRunner{}

// RegisterRunner registers a runner factory by name.
func RegisterRunner(name string, factory func() IRunner) {
	runnerRegistry[name] = factory
}

// ResolveRunner returns a new runner instance for the given name.
func ResolveRunner(name string) (IRunner, error) {
	factory, ok := runnerRegistry[name]
	if !ok {
		return nil, fmt.Errorf("runner %s not registered", name)
	}
	return factory(), nil
}

func MustResolveRunner(name string) IRunner {
	r, err := ResolveRunner(name)
	if err != nil {
		panic(err)
	}
	return r
}

func RunnerList() []string {
	rs := make([]string, 0, len(runnerRegistry))
	for k := range runnerRegistry {
		rs = append(rs, k)
	}
	sort.Strings(rs)
	return rs
}
