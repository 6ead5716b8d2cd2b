package handler

import (
	"net/http"
	"visionserver/internal/logger"
	"visionserver/internal/service/networktable"
)

// TableHandler dumps every network table, or the one named by ?name=.
func TableHandler(instance networktable.Instance, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := []string{r.URL.Query().Get("name")}
		if names[0] == "" {
			var err error
			names, err = instance.Tables()
			if err != nil {
				logger.Error("Error listing network tables: %v", err)
				writeError(w, logger, http.StatusBadGateway, "network table unavailable")
				return
			}
		}

		tables := make(map[string]map[string]networktable.Value, len(names))
		for _, name := range names {
			values, err := instance.Table(name).Snapshot()
			if err != nil {
				logger.Error("Error reading network table %s: %v", name, err)
				writeError(w, logger, http.StatusBadGateway, "network table unavailable")
				return
			}
			tables[name] = values
		}

		writeJSON(w, logger, http.StatusOK, tables)
	}
}
