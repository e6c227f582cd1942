package tui

import (
	"github.com/matheuskafuri/prepmine/internal/cache"
)

type recordsLoadedMsg struct {
	records []cache.Record
}

type loadErrMsg struct {
	err error
}
