package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/predatorx7/logshipper/pkg/broker"
	"github.com/predatorx7/logshipper/pkg/subscriber/file"
)

type StatusResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	Queued      int    `json:"queued"`
	Published   uint64 `json:"published"`
	Written     uint64 `json:"written"`
	Failed      uint64 `json:"failed"`
	WriterState string `json:"writer_state"`
}

var startTime = time.Now()

func HandleStatus(b *broker.MemoryBroker, writer *file.Subscriber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		published, _ := b.Stats()
		written, failed := writer.Stats()
		state := writer.State()

		resp := StatusResponse{
			Status:      "ok",
			Uptime:      time.Since(startTime).String(),
			Queued:      b.Len(),
			Published:   published,
			Written:     written,
			Failed:      failed,
			WriterState: state.String(),
		}
		if state == file.StateTerminated {
			resp.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
