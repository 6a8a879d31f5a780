package orm

import (
	"encoding/gob"
	"time"
)

func init() {
	gob.Register(time.Time{})
	gob.Register(Row{})
	gob.Register(NamePair{})
	gob.Register([]interface{}{})
	gob.Register(map[string]interface{}{})
}
