// Command simulator joins a session with simulated units that walk through
// realistic status sequences, for rehearsing a console setup without real
// vehicles on the radio.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/leitstand/leitstand/pkg/client"
	"github.com/leitstand/leitstand/pkg/logger"
	"github.com/leitstand/leitstand/pkg/protocol"
)

var (
	endpoint = flag.String("endpoint", "ws://localhost:8000", "websocket base URL of the server")
	session  = flag.String("session", "", "session code to join")
	units    = flag.Int("units", 4, "number of simulated units")
	interval = flag.Duration("interval", 15*time.Second, "mean delay between unit actions")
)

// nextSteps lists the keypad presses a simulated unit picks from, per
// current status. Weighted by repetition.
var nextSteps = map[string][]string{
	"1": {"2", "2", "3"},
	"2": {"3", "3", "3", "1"},
	"3": {"4", "4", "2"},
	"4": {"7", "7", "3"},
	"7": {"8", "8"},
	"8": {"1", "1", "7"},
}

var kurzstatusPool = []string{"Pause", "Lage erkundet", "Tanken", "Material fehlt"}

func main() {
	flag.Parse()
	if *session == "" {
		fmt.Fprintln(os.Stderr, "a session code is required (-session)")
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 1; i <= *units; i++ {
		name := fmt.Sprintf("Florian %d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			runUnit(name, done)
		}()
		// Stagger joins so the server sees a realistic trickle.
		time.Sleep(200 * time.Millisecond)
	}

	log.Printf("simulating %d units against %s (session %s)", *units, *endpoint, *session)
	<-stop
	log.Printf("shutting down")
	close(done)
	wg.Wait()
}

func runUnit(name string, done <-chan struct{}) {
	conn := client.NewConn(client.ConnConfig{
		URL:    protocol.SessionURL(*endpoint, *session, name),
		Logger: logger.Nop{},
	})
	// The snapshot handler needs the session; it only fires after Start.
	var sess *client.Session
	sess = client.NewSession(conn, client.SessionOpts{
		Role:     client.RoleUnit,
		Identity: name,
	}, client.Handlers{
		OnSnapshot: func(v client.ViewState) {
			// Confirm conversation requests after a short pause, like a
			// crew noticing the board.
			if n := v.Notice(name); n != nil && !n.Confirmed() {
				go func() {
					time.Sleep(jitter(3 * time.Second))
					sess.ConfirmNotice()
				}()
			}
		},
	})
	if err := sess.Start(); err != nil {
		log.Printf("%s: connect: %v", name, err)
		return
	}
	defer sess.Stop()

	for {
		select {
		case <-done:
			return
		case <-time.After(jitter(*interval)):
			act(sess, name)
		}
	}
}

// act performs one random unit action.
func act(sess *client.Session, name string) {
	roll := rand.Float64()
	switch {
	case roll < 0.70:
		status, _, _ := sess.Status()
		steps := nextSteps[status]
		if len(steps) == 0 {
			steps = []string{"2"}
		}
		next := steps[rand.Intn(len(steps))]
		sess.PressStatus(next)
		log.Printf("%s: status %s -> %s", name, status, next)
	case roll < 0.80:
		sess.PressStatus(protocol.SpecialSprechwunsch)
		log.Printf("%s: sprechwunsch toggled", name)
	case roll < 0.85:
		sess.PressStatus(protocol.SpecialBlitz)
		log.Printf("%s: blitz toggled", name)
	default:
		tag := kurzstatusPool[rand.Intn(len(kurzstatusPool))]
		sess.SetKurzstatus(tag)
		log.Printf("%s: kurzstatus %q", name, strings.TrimSpace(tag))
	}
}

func jitter(mean time.Duration) time.Duration {
	// Uniform between 0.5x and 1.5x.
	return mean/2 + time.Duration(rand.Int63n(int64(mean)))
}
