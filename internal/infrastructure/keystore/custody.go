package keystore

import (
	"context"
	"crypto/rsa"
	"sync"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
)

// DefaultLoadTimeout tiempo máximo de lectura de la llave si no se configura otro.
const DefaultLoadTimeout = 2 * time.Second

// Config origen y política de caché de la llave.
type Config struct {
	Path     string
	Password string
	Timeout  time.Duration
	Cache    bool // true = conservar la llave en memoria del proceso hasta Invalidate
}

// loadFunc permite sustituir el lector en tests.
type loadFunc func(path, password string) (*rsa.PrivateKey, error)

// Custody entrega la llave privada al firmador. Con caché activada la llave se
// lee una vez por ruta y se conserva hasta Invalidate o Reconfigure.
// Nunca escribe la llave ni la modifica.
type Custody struct {
	mu    sync.RWMutex
	cfg   Config
	cache map[string]*rsa.PrivateKey
	load  loadFunc
}

// NewCustody construye la custodia con la configuración dada.
func NewCustody(cfg Config) *Custody {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLoadTimeout
	}
	return &Custody{cfg: cfg, cache: make(map[string]*rsa.PrivateKey), load: LoadPrivateKey}
}

// PrivateKey devuelve la llave, leyéndola del disco si no está en caché.
// La lectura se aborta con ErrKeyTimeout si supera el timeout configurado o si ctx vence antes.
func (c *Custody) PrivateKey(ctx context.Context) (*rsa.PrivateKey, error) {
	c.mu.RLock()
	cfg := c.cfg
	key, ok := c.cache[cfg.Path]
	c.mu.RUnlock()
	if ok {
		return key, nil
	}

	key, err := c.loadWithTimeout(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Cache {
		c.mu.Lock()
		if c.cfg.Path == cfg.Path {
			c.cache[cfg.Path] = key
		}
		c.mu.Unlock()
	}
	return key, nil
}

type loadResult struct {
	key *rsa.PrivateKey
	err error
}

func (c *Custody) loadWithTimeout(ctx context.Context, cfg Config) (*rsa.PrivateKey, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	done := make(chan loadResult, 1)
	go func() {
		k, err := c.load(cfg.Path, cfg.Password)
		done <- loadResult{key: k, err: err}
	}()

	select {
	case r := <-done:
		return r.key, r.err
	case <-ctx.Done():
		return nil, domain.ErrKeyTimeout.With("key_path", cfg.Path, "lectura en menos de "+cfg.Timeout.String()).Wrap(ctx.Err())
	}
}

// Invalidate descarta las llaves en caché; la próxima firma vuelve a leer el disco.
func (c *Custody) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]*rsa.PrivateKey)
	c.mu.Unlock()
}

// Reconfigure cambia la ruta o contraseña de la llave e invalida la caché.
func (c *Custody) Reconfigure(path, password string) {
	c.mu.Lock()
	c.cfg.Path = path
	c.cfg.Password = password
	c.cache = make(map[string]*rsa.PrivateKey)
	c.mu.Unlock()
}

// Path ruta configurada.
func (c *Custody) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Path
}
