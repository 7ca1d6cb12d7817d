package boundary

import (
	"github.com/julienschmidt/httprouter"

	"github.com/jaspertzx/shardvault/internal/orchestrator"
)

// NewRouter builds the HTTP surface of the object store: upload,
// download, list, and delete, each wrapped with request logging and
// bearer-token authentication, in that order.
func NewRouter(orch *orchestrator.ShardOrchestrator, resolver TokenResolver) *httprouter.Router {
	h := newHandlers(orch)
	router := httprouter.New()

	route := func(method, path string, handle httprouter.Handle) {
		router.Handle(method, path, logWrapper(authWrapper(resolver, handle)))
	}

	route("POST", "/file", h.uploadFile)
	route("GET", "/file", h.downloadFile)
	route("GET", "/file/list", h.listFiles)
	route("DELETE", "/file", h.deleteFile)

	return router
}
