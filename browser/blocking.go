package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockResources intercepts requests on a page and fails the configured
// resource types. Config names are plural ("images"); CDP reports singular
// ("Image").
func blockResources(page *rod.Page, types []string) {
	blocked := make(map[string]bool, len(types))
	for _, t := range types {
		blocked[strings.ToLower(t)] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if blocks(blocked, string(h.Request.Type())) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}

func blocks(blocked map[string]bool, resType string) bool {
	switch strings.ToLower(resType) {
	case "image":
		return blocked["images"]
	case "font":
		return blocked["fonts"]
	case "media":
		return blocked["media"]
	case "stylesheet":
		return blocked["stylesheets"]
	}
	return blocked[strings.ToLower(resType)]
}
