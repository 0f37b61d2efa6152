package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// cache holds one parsed value per config type so every component that
// loads the same struct sees the same snapshot of the environment.
var cache = struct {
	mu     sync.RWMutex
	values map[string]any
	onces  map[string]*sync.Once
}{
	values: make(map[string]any),
	onces:  make(map[string]*sync.Once),
}

var dotenvOnce sync.Once

// Load parses environment variables into v according to its env struct
// tags. The first call for a given type does the parsing; subsequent calls
// receive the cached copy, so a type is read from the environment exactly
// once per process. A .env file in the working directory is applied before
// the first parse if present.
//
//	var cfg fetledger.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		// Missing .env is fine; variables come from the real environment.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	name := typeName[T]()
	if cached, ok := lookup(name); ok {
		*v = cached.(T)
		return nil
	}

	cache.mu.Lock()
	once, ok := cache.onces[name]
	if !ok {
		once = new(sync.Once)
		cache.onces[name] = once
	}
	cache.mu.Unlock()

	var parseErr error
	once.Do(func() {
		if err := env.Parse(v); err != nil {
			parseErr = errors.Join(ErrParsingConfig, err)
			return
		}
		cache.mu.Lock()
		cache.values[name] = *v
		cache.mu.Unlock()
	})
	if parseErr != nil {
		return parseErr
	}

	// Losers of the once race read the winner's copy.
	if cached, ok := lookup(name); ok {
		*v = cached.(T)
		return nil
	}
	return ErrConfigNotLoaded
}

// MustLoad is Load for configs the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// LoadEnv loads one or more .env files into the process environment. With
// no arguments it loads ./.env. Later files override earlier ones and
// already-set variables, so layered setups (.env then .env.local) behave
// predictably.
func LoadEnv(paths ...string) error {
	if err := godotenv.Overload(paths...); err != nil {
		return errors.Join(ErrFailedToLoadEnvFile, err)
	}
	return nil
}

// MustLoadEnv is LoadEnv that panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// ResetCache drops all cached configs. For tests that mutate the
// environment between loads.
func ResetCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.values = make(map[string]any)
	cache.onces = make(map[string]*sync.Once)
}

// ForceReloadConfig re-parses the environment into v and replaces the
// cached copy for that type. Use after t.Setenv.
func ForceReloadConfig[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	cache.mu.Lock()
	cache.values[typeName[T]()] = *v
	cache.mu.Unlock()
	return nil
}

func lookup(name string) (any, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	v, ok := cache.values[name]
	return v, ok
}

func typeName[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	// Interface types have no concrete reflect.Type for the zero value.
	return fmt.Sprintf("%T", *new(T))
}
