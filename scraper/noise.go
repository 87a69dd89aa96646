package scraper

import "log/slog"

const jsRemoveAll = `(sel) => document.querySelectorAll(sel).forEach(el => el.remove())`

// removeNoise deletes cookie banners, consent dialogs, modals and the like.
// A failing selector is skipped. It returns how many selectors ran cleanly.
func removeNoise(s Session, selectors []string) int {
	ok := 0
	for _, sel := range selectors {
		if _, err := s.Eval(jsRemoveAll, sel); err != nil {
			slog.Debug("noise filter: selector failed", "selector", sel, "error", err)
			continue
		}
		ok++
	}
	return ok
}
