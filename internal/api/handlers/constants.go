package handlers

const (
	serviceName = "Merlai Music Generation API"

	// error body keys: "error" for malformed requests, "detail" for rejected ones
	errorKey  = "error"
	detailKey = "detail"
)
