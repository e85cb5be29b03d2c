package actions

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/pipeline"
)

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	var retval string
	switch w {
	case Okay:
		retval = "ok"
	case Error:
		retval = "error"
	default:
		err := fmt.Errorf("unhandled WebServerResponse value in MarshalJSON() conversion")
		return nil, err
	}
	return json.Marshal(retval)
}

type ResponseSimple struct {
	ServerStatus WebServerResponse `json:"status"`
}

type ResponseRunList struct {
	Status  WebServerResponse `json:"status"`
	RunList []RunListItem     `json:"runs"`
}

type RunListItem struct {
	RunId        string             `json:"runId"`
	PipelineName string             `json:"pipelineName"`
	RunStatus    pipeline.RunStatus `json:"runStatus"`
}

type ResponseRunStats struct {
	Status       WebServerResponse `json:"status"`
	Message      string            `json:"message"`
	StatsSummary interface{}       `json:"runStats"`
}

type ResponseRunStatus struct {
	Status    WebServerResponse   `json:"status"`
	Message   string              `json:"message"`
	RunStatus pipeline.RunStatus  `json:"runStatus"`
	Jobs      []pipeline.JobState `json:"jobs"`
}

type ResponseRunStop struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	RunId   string            `json:"runId"`
}

type ResponseRunLaunch struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	RunId   string            `json:"runId"`
}

func GetHandlerHealth(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(log, w, http.StatusOK, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerStopServer(log logger.Logger, stopServer func()) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		stopServer()
		log.Info("Stop signal sent")
		respond(log, w, http.StatusOK, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerRunLaunch(log logger.Logger, l *Launcher) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		guid, err := l.Launch(r.Context(), false)
		if errors.Is(err, ErrRunInProgress) {
			log.Warn(err)
			respond(log, w, http.StatusConflict, ResponseRunLaunch{Status: Error, Message: err.Error()})
			return
		}
		if err != nil {
			log.Error(err)
			respond(log, w, http.StatusInternalServerError,
				ResponseRunLaunch{Status: Error, Message: fmt.Sprintf("unable to launch run: %v", err)})
			return
		}
		respond(log, w, http.StatusOK, ResponseRunLaunch{Status: Okay, Message: "run launched", RunId: guid})
	}
}

func GetHandlerRunStop(log logger.Logger, ri *pipeline.SafeMapRunInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		switch err := ri.Stop(id); err {
		case nil:
			log.Info("Stopping run ", id)
			respond(log, w, http.StatusOK, ResponseRunStop{Status: Okay, Message: "shutting down", RunId: id})
		case pipeline.ErrRunFinished:
			log.Info("HTTP request to stop run ", id, " that has already finished.")
			respond(log, w, http.StatusOK, ResponseRunStop{Status: Error, Message: "run already ended", RunId: id})
		default:
			log.Info("HTTP request to stop run ", id, " that doesn't exist.")
			respond(log, w, http.StatusNotFound, ResponseRunStop{Status: Error, Message: "run does not exist", RunId: id})
		}
	}
}

func GetHandlerRunList(log logger.Logger, ri *pipeline.SafeMapRunInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		keys := ri.Keys()
		sort.Strings(keys) // xid GUIDs sort by creation time.
		runs := make([]RunListItem, 0, len(keys))
		for _, id := range keys {
			if v, ok := ri.Load(id); ok {
				runs = append(runs, RunListItem{RunId: id, PipelineName: v.Definition.Name, RunStatus: v.Status})
			}
		}
		respond(log, w, http.StatusOK, ResponseRunList{Status: Okay, RunList: runs})
	}
}

func GetHandlerRunStats(log logger.Logger, ri *pipeline.SafeMapRunInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		s, ok := ri.Load(id)
		if !ok { // if the run doesn't exist...
			log.Info("HTTP request to fetch stats for run ", id, " that doesn't exist.")
			respond(log, w, http.StatusNotFound, ResponseRunStats{Status: Error, Message: fmt.Sprintf("run %v does not exist", id)})
			return
		}
		respond(log, w, http.StatusOK, ResponseRunStats{Status: Okay, StatsSummary: s.Stats.GetStats()})
	}
}

func GetHandlerRunStatus(log logger.Logger, ri *pipeline.SafeMapRunInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		v, ok := ri.Load(id)
		if !ok { // if the run doesn't exist...
			log.Info("HTTP request status of run ", id, " that doesn't exist.")
			respond(log, w, http.StatusNotFound, ResponseRunStatus{Status: Error, Message: fmt.Sprintf("run %v does not exist", id)})
			return
		}
		var jobs []pipeline.JobState
		if v.Jobs != nil {
			jobs = v.Jobs.List()
		}
		respond(log, w, http.StatusOK, ResponseRunStatus{Status: Okay, RunStatus: v.Status, Jobs: jobs})
	}
}

// respond will marshal i as JSON and write it to w with the given status code.
func respond(log logger.Logger, w http.ResponseWriter, code int, i interface{}) {
	j, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		log.Error(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(j); err != nil {
		log.Error(err)
	}
}
