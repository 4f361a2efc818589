package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/cpsync/prefabs"
)

func main() {
	sceneName := flag.String("scene", "boxes.yaml", "scene spec in prefabs/")
	configName := flag.String("config", "physics.yaml", "physics config in prefabs/")
	debug := flag.Bool("debug", false, "show physics stats")
	watch := flag.Bool("watch", false, "reload scene, config and scripts when files under prefabs/ change")
	zoom := flag.Float64("zoom", 40, "pixels per world unit")
	flag.Parse()

	log.SetFlags(log.Lmicroseconds)

	game, err := NewGame(*sceneName, *configName, *zoom, *debug)
	if err != nil {
		log.Fatal(err)
	}
	if *watch {
		w, err := prefabs.NewWatcher("prefabs", "prefabs/scripts")
		if err != nil {
			log.Printf("viewer: watch disabled: %v", err)
		} else {
			defer w.Close()
			game.watcher = w
		}
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("cpsync viewer - " + *sceneName)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
