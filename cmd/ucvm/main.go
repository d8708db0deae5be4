// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/ezrec/ucvm/config"
	"github.com/ezrec/ucvm/cpu"
	"github.com/ezrec/ucvm/display"
	"github.com/ezrec/ucvm/emulator"
	"github.com/ezrec/ucvm/monitor"
	"github.com/ezrec/ucvm/rom"
)

func main() {
	var compile string
	var output string
	var listing bool
	var image string
	var dir string
	var name string
	var configPath string
	var draw string
	var limit int
	var bitmap string
	var scale int
	var terminal bool
	var verbose bool
	var strict bool

	flag.StringVar(&compile, "c", "", ".s file to assemble")
	flag.StringVar(&output, "o", "", ".bin file to write, do not execute")
	flag.BoolVar(&listing, "l", false, "List the program, do not execute")
	flag.StringVar(&image, "r", "", ".bin file to run")
	flag.StringVar(&dir, "d", "", "Rom library directory")
	flag.StringVar(&name, "n", "", "Rom library entry to run; lists the library if empty")
	flag.StringVar(&configPath, "config", "", ".toml machine configuration")
	flag.StringVar(&draw, "draw", "", "Video display list to execute after load")
	flag.IntVar(&limit, "limit", 0, "Instruction limit, 0 for none")
	flag.StringVar(&bitmap, "bmp", "", ".bmp file for the final frame")
	flag.IntVar(&scale, "scale", 1, "Pixel scale of the .bmp file")
	flag.BoolVar(&terminal, "t", false, "Interactive terminal monitor")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&strict, "strict", false, "Fail on invalid opcodes")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	cfg := config.Default()
	if len(configPath) != 0 {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatalf("%v: %v", configPath, err)
		}
	}
	cfg.Strict = cfg.Strict || strict

	emu, err := emulator.NewEmulator(cfg)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
	emu.Verbose = verbose

	source := os.Args[0]

	// Assemble a new program.
	if len(compile) != 0 {
		source = compile

		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		err = emu.Assemble(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	if len(image) != 0 {
		source = image

		err = emu.LoadFile(image)
		if err != nil {
			log.Fatalf("%v: %v", image, err)
		}
	}

	if len(dir) != 0 {
		lib := &rom.Library{}
		err = lib.Unmarshal(os.DirFS(dir))
		if err != nil {
			log.Fatalf("%v: %v", dir, err)
		}

		if len(name) == 0 {
			for _, entry := range lib.Names() {
				fmt.Println(entry)
			}
			return
		}

		source = name

		entry, err := lib.Get(name)
		if err != nil {
			log.Fatalf("%v: %v", dir, err)
		}

		err = emu.LoadRom(entry)
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
	}

	if len(output) != 0 {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()

		err = emu.Rom.Marshal(ouf)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}

	if listing {
		if len(emu.Program.Opcodes) != 0 {
			for _, op := range emu.Program.Opcodes {
				fmt.Printf("%02X: %-12x %4d %v\n", op.Addr, op.Bytes, op.LineNo, strings.Join(op.Words, " "))
			}
		} else {
			for addr, code := range cpu.Disassemble(emu.Rom.Data) {
				fmt.Printf("%02X: %-12x %v\n", addr, code.Bytes(), code)
			}
		}
	}

	if len(draw) != 0 {
		list, err := os.ReadFile(draw)
		if err != nil {
			log.Fatalf("%v: %v", draw, err)
		}

		err = emu.Draw(list)
		if err != nil {
			log.Fatalf("%v: %v", draw, err)
		}
	}

	tty := term.IsTerminal(int(os.Stdout.Fd()))

	if terminal {
		if !tty {
			log.Fatalf("%v: -t requires a terminal", os.Args[0])
		}

		err = monitor.Run(emu, cfg)
		if err != nil {
			log.Fatalf("%v: %v", source, err)
		}
		return
	}

	run := len(image) != 0 || len(name) != 0 || (len(compile) != 0 && len(output) == 0 && !listing)
	if !run {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	headless := &display.Headless{Width: cfg.Video.Width, Height: cfg.Video.Height}
	ticks, err := emu.RunFrames(ctx, limit, headless)
	if err != nil {
		log.Fatalf("%v: %v", source, err)
	}

	var displays []display.Display

	if len(bitmap) != 0 {
		ouf, err := os.Create(bitmap)
		if err != nil {
			log.Fatalf("%v: %v", bitmap, err)
		}
		defer ouf.Close()

		displays = append(displays, &display.Bitmap{
			Width:  cfg.Video.Width,
			Height: cfg.Video.Height,
			Scale:  scale,
			Writer: ouf,
		})
	}

	if tty {
		displays = append(displays, &display.Terminal{
			Width:  cfg.Video.Width,
			Height: cfg.Video.Height,
			Writer: os.Stdout,
		})
	}

	frame := headless.Last
	for _, disp := range displays {
		err = disp.Render(frame)
		if err != nil {
			log.Fatalf("%v: %v", source, err)
		}
	}

	if verbose {
		log.Printf("%v: %d ticks, %d frames", source, ticks, headless.Frames)
	}
}
