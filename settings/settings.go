package settings

import (
	"time"

	"github.com/cwkr/personsd/internal/persons"
)

type Server struct {
	Port            int                    `json:"port" env:"PORT"`
	PersonStore     *persons.StoreSettings `json:"person_store,omitempty" envPrefix:"STORE_"`
	Persons         []persons.Person       `json:"persons,omitempty"`
	TickInterval    Duration               `json:"tick_interval,omitempty" env:"TICK_INTERVAL"`
	WriteTimeout    Duration               `json:"write_timeout,omitempty" env:"WRITE_TIMEOUT"`
	ShutdownTimeout Duration               `json:"shutdown_timeout,omitempty" env:"SHUTDOWN_TIMEOUT"`
}

func NewDefault(port int) *Server {
	return &Server{
		Port:            port,
		PersonStore:     &persons.StoreSettings{},
		TickInterval:    Duration(100 * time.Millisecond),
		WriteTimeout:    Duration(30 * time.Second),
		ShutdownTimeout: Duration(10 * time.Second),
	}
}
