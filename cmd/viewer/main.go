package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"

	"survivalsim.ai/internal/render/term"
	"survivalsim.ai/internal/transport/observer"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/v1/observer/ws", "observer ws url")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := observer.Subscribe(ctx, *url)
	if err != nil {
		fmt.Fprintln(os.Stderr, "subscribe:", err)
		os.Exit(1)
	}
	defer sub.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "screen:", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "screen init:", err)
		os.Exit(1)
	}

	r := term.New(screen)
	r.Message("waiting for first frame from " + *url)

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	exitErr := run(r, sub, events)
	screen.Fini()
	if exitErr != nil {
		fmt.Fprintln(os.Stderr, exitErr)
		os.Exit(1)
	}
}

func run(r *term.Renderer, sub *observer.Subscription, events <-chan tcell.Event) error {
	for {
		select {
		case f, ok := <-sub.Frames:
			if !ok {
				if err := sub.Err(); err != nil {
					return fmt.Errorf("stream ended: %w", err)
				}
				return nil
			}
			if err := r.Draw(f); err != nil {
				return err
			}
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return nil
				}
			case *tcell.EventResize:
				if err := r.Redraw(); err != nil {
					return err
				}
			}
		}
	}
}
