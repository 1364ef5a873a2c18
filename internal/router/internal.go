package router

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/wanderlust/internal/logger"
	"github.com/patric-chuzhbe/wanderlust/internal/sessionstore"
)

const messageFlashTest = "Flash message test!"

// GetTestflash queues a flash and redirects to a page that shows it.
func (rtr *Router) GetTestflash(response http.ResponseWriter, request *http.Request) error {
	return rtr.flashAndRedirect(response, request, sessionstore.FlashError, messageFlashTest, "/")
}

func (rtr *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := rtr.service.Ping(request.Context()); err != nil {
		logger.Log.Errorw("Error calling the `rtr.service.Ping()`", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (rtr *Router) GetApiinternalstats(response http.ResponseWriter, request *http.Request) {
	stats, err := rtr.service.Stats(request.Context())
	if err != nil {
		logger.Log.Errorw("Error calling the `rtr.service.Stats()`", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(response).Encode(stats); err != nil {
		logger.Log.Errorw("Error calling the `json.NewEncoder(response).Encode()`", zap.Error(err))
	}
}
