package main

import (
	"fmt"
)

type syncCommand struct{}

func (c *syncCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	live, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer live.Close()

	merger, release, err := a.newMerger(ctx, live)
	if err != nil {
		return err
	}
	defer release()

	result, err := merger.Advance(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("watermark %s -> %s (%d fetched, %d new)\n",
		result.Previous, result.Watermark, result.Fetched, result.Added)
	return nil
}

type countCommand struct{}

func (c *countCommand) Execute(args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	live, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer live.Close()

	n, err := live.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Println(n)
	return nil
}
