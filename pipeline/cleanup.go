package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/relloyd/salespipe/logger"
)

// CleanupHandlerFunc waits for a reason to stop the run and calls cancelFunc.
// It must return once done is closed.
type CleanupHandlerFunc func(log logger.Logger, runGuid string, rc *RunCloser, cancelFunc context.CancelFunc, done <-chan struct{})

// CleanupHandlerWithSignals handles CTRL-C, SIGTERM and stop requests sent via the RunCloser.
func CleanupHandlerWithSignals(log logger.Logger, runGuid string, rc *RunCloser, cancelFunc context.CancelFunc, done <-chan struct{}) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)
	cleanup(log, runGuid, rc, cancelFunc, done, c)
}

// CleanupHandlerWithoutSignals only handles stop requests sent via the RunCloser.
func CleanupHandlerWithoutSignals(log logger.Logger, runGuid string, rc *RunCloser, cancelFunc context.CancelFunc, done <-chan struct{}) {
	cleanup(log, runGuid, rc, cancelFunc, done, nil)
}

func cleanup(log logger.Logger, runGuid string, rc *RunCloser, cancelFunc context.CancelFunc, done <-chan struct{}, c chan os.Signal) {
	select { // block until interrupt, shutdown request or completion...
	case x := <-c:
		if isatty.IsTerminal(os.Stdout.Fd()) {
			fmt.Println() // add return char for a clean CLI look n feel.
		}
		log.Info("Caught ", x.String())
		rc.RequestShutdown(nil)
	case e, ok := <-rc.chanShutdown:
		if ok && e != nil { // if there was an error...
			log.Error(e)
		}
	case <-done:
		return
	}
	log.Info("Shutting down run ", runGuid, "...")
	cancelFunc() // in-flight jobs see this via their context.
	<-done
	log.Info("Shutdown complete for run ", runGuid)
}
