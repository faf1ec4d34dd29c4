package handler

import (
	calendarhandler "child-growth-go/internal/transport/httpserver/handler/calendar"
	commonhandler "child-growth-go/internal/transport/httpserver/handler/common"
	sharinghandler "child-growth-go/internal/transport/httpserver/handler/sharing"
	"child-growth-go/pkg/logger"
)

type Handlers struct {
	Common   *commonhandler.Handlers
	Sharing  *sharinghandler.Handlers
	Calendar *calendarhandler.Handlers
}

func New(sharing sharinghandler.Gate, calendar calendarhandler.Broker, log logger.Logger) *Handlers {
	return &Handlers{
		Common:   commonhandler.New(log),
		Sharing:  sharinghandler.New(sharing, log),
		Calendar: calendarhandler.New(calendar, log),
	}
}
