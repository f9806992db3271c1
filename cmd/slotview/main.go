// Command slotview draws a layout directory in the terminal and lets the
// layouts be clicked through with the mouse.
//
//	slotview [-dir ./layouts] [-log slotview.log] <layout>
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/gravitas-games/slotgui/internal/gui"
	"github.com/gravitas-games/slotgui/internal/layout"
	"github.com/gravitas-games/slotgui/internal/preview"
	"github.com/gravitas-games/slotgui/pkg/models"
)

type viewer struct {
	screen tcell.Screen
	term   *preview.Terminal
	docs   map[string]*layout.Document
	stash  *gui.StashCache
	logger *log.Logger
	player *models.Player

	current *gui.Gui
	quit    bool
}

func main() {
	dir := flag.String("dir", "./layouts", "layout directory")
	logPath := flag.String("log", "", "write gui logs to this file")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: slotview [-dir path] [-log file] <layout>")
		os.Exit(2)
	}

	logger := log.New(io.Discard, "", 0)
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			log.Fatalf("Failed to open log: %v", err)
		}
		defer f.Close()
		logger = log.New(f, "slotview ", log.LstdFlags)
	}

	v := &viewer{
		stash:  gui.NewStashCache(),
		logger: logger,
		player: models.NewPlayer("preview", "preview"),
	}
	reg := layout.NewRegistry()
	if err := v.registerActions(reg); err != nil {
		log.Fatalf("Failed to register actions: %v", err)
	}
	docs, err := layout.LoadDir(*dir, reg)
	if err != nil {
		log.Fatalf("Failed to load layouts: %v", err)
	}
	v.docs = docs

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Failed to initialize screen: %v", err)
	}
	screen.EnableMouse()
	v.screen = screen

	if err := v.open(flag.Arg(0)); err != nil {
		screen.Fini()
		log.Fatal(err)
	}
	v.run()
	v.close()
	screen.Fini()
}

func (v *viewer) registerActions(reg *layout.Registry) error {
	if err := reg.RegisterAction("close", func(*gui.ActivationEvent, string) {
		v.quit = true
	}); err != nil {
		return err
	}
	return reg.RegisterAction("open", func(_ *gui.ActivationEvent, name string) {
		if err := v.open(name); err != nil {
			v.term.SetStatus(err.Error())
		}
	})
}

// rowWidth is the number of top slots drawn per line.
func rowWidth(s gui.Shape) int {
	if len(s.Sections) == 1 {
		return s.Sections[0].Width
	}
	return gui.PersonalWidth
}

// open switches the preview to the named layout.
func (v *viewer) open(name string) error {
	doc, ok := v.docs[name]
	if !ok {
		known := make([]string, 0, len(v.docs))
		for n := range v.docs {
			known = append(known, n)
		}
		if hints := layout.Suggest(name, known); len(hints) > 0 {
			return fmt.Errorf("no layout %q (did you mean %s?)", name, strings.Join(hints, ", "))
		}
		return fmt.Errorf("no layout %q", name)
	}

	// The terminal's row width depends on the built shape.
	var term *preview.Terminal
	forward := gui.PresenterFunc(func(vw gui.Viewer, title string, top, personal gui.Slots) error {
		return term.Materialize(vw, title, top, personal)
	})
	g, err := doc.Build(forward, gui.WithStash(v.stash), gui.WithLogger(v.logger))
	if err != nil {
		return err
	}
	term = preview.NewTerminal(v.screen, rowWidth(g.Shape()))

	v.close()
	v.term = term
	v.player.Layout = name
	v.current = g
	return g.Show(v.player)
}

func (v *viewer) close() {
	if v.current == nil {
		return
	}
	v.current.HandleClose(v.player)
	v.current = nil
	v.player.Layout = ""
}

func (v *viewer) run() {
	down := false
	for !v.quit {
		switch ev := v.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			v.screen.Sync()
			v.term.Draw()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				return
			}
			if ev.Key() == tcell.KeyRune && ev.Rune() == 'r' {
				v.current.Update()
			}
		case *tcell.EventMouse:
			pressed := ev.Buttons()&tcell.Button1 != 0
			if !pressed || down {
				down = pressed
				continue
			}
			down = true
			v.click(ev)
		}
	}
}

func (v *viewer) click(ev *tcell.EventMouse) {
	act := v.term.Activation(ev, v.player)
	if act == nil {
		return
	}
	g := v.current
	handled := g.HandleActivation(act)
	if v.current != g || v.quit {
		return
	}
	status := fmt.Sprintf("%s slot %d: handled=%t cancelled=%t", act.Region, act.Slot, handled, act.Cancelled)
	if key := act.ItemKey(); key != "" {
		status += fmt.Sprintf(" item=%s", key)
	}
	v.term.SetStatus(status)
}
