// Demo drives a small device-controller machine through the serializing
// runtime, with states assembled via Define and a shared Store owner.
package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/comalice/hsmx"
	"github.com/comalice/hsmx/runtime"
)

const (
	evPlug    hsmx.EventKind = "plug"
	evLinkUp  hsmx.EventKind = "link-up"
	evSample  hsmx.EventKind = "sample"
	evUnplug  hsmx.EventKind = "unplug"
	kindIdle  hsmx.StateKind = "idle"
	kindConn  hsmx.StateKind = "connecting"
	kindLive  hsmx.StateKind = "online"
	kindRoot  hsmx.StateKind = "device"
	storeKeys                = "samples"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	var idle, connecting, online hsmx.StateFactory

	idle = hsmx.Define(kindIdle,
		hsmx.On(evPlug, func(s *hsmx.Base, _ hsmx.Event) hsmx.Transition {
			return s.Transit(connecting)
		}),
		// Samples arriving before the link is up wait for the transition.
		hsmx.On(evSample, func(s *hsmx.Base, _ hsmx.Event) hsmx.Transition {
			return s.Defer()
		}),
	)

	connecting = hsmx.Define(kindConn,
		hsmx.On(evLinkUp, func(s *hsmx.Base, _ hsmx.Event) hsmx.Transition {
			return s.Transit(online)
		}),
		hsmx.On(evSample, func(s *hsmx.Base, _ hsmx.Event) hsmx.Transition {
			return s.Defer()
		}),
	)

	online = hsmx.Define(kindLive,
		hsmx.On(evSample, func(s *hsmx.Base, evt hsmx.Event) hsmx.Transition {
			store := hsmx.OwnerOf[*hsmx.Store](s.Machine())
			count, _ := store.Get(storeKeys).(int)
			store.Set(storeKeys, count+1)
			return s.Finish()
		}),
		hsmx.On(evUnplug, func(s *hsmx.Base, _ hsmx.Event) hsmx.Transition {
			return s.Transit(idle)
		}),
	)

	root := hsmx.Define(kindRoot, hsmx.Initial(hsmx.LazyFactory(kindIdle, func() hsmx.StateFactory { return idle })))

	store := hsmx.NewStore()
	machine := hsmx.NewStateMachine(
		hsmx.WithLogger(logger),
		hsmx.WithAbortOnUnknownEvent(false),
	)

	rt := runtime.New(machine, root, store, runtime.WithLogger(logger))
	ctx := context.Background()
	if err := rt.Start(ctx); err != nil {
		log.Fatal(err)
	}

	for _, kind := range []hsmx.EventKind{evSample, evPlug, evSample, evLinkUp, evSample, evUnplug} {
		if err := rt.SendSync(ctx, hsmx.NewEvent(kind, nil)); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("active: %v, samples: %v\n", rt.Active(), store.Get(storeKeys))
	if err := rt.Stop(); err != nil {
		log.Fatal(err)
	}
}
