package stream

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/tmpim/invader"
)

// Limits on what a single request may ask for.
const (
	maxInvaderWidth = 64
	maxInvaderCount = 16
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 5 * time.Second,
}

func intParam(c echo.Context, name string, def, min, max int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return 0, echo.NewHTTPError(http.StatusBadRequest,
			name+" must be an integer between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return n, nil
}

func seedParam(c echo.Context) (int64, error) {
	v := c.QueryParam("seed")
	if v == "" {
		return time.Now().UnixNano(), nil
	}

	seed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "seed must be an integer")
	}
	return seed, nil
}

func (s *Manager) requestOptions(c echo.Context) (invader.Options, error) {
	opts := s.opts
	opts.Context = c.Request().Context()

	var err error
	if opts.InvaderWidth, err = intParam(c, "width", opts.InvaderWidth, 1, maxInvaderWidth); err != nil {
		return opts, err
	}
	if opts.InvaderCount, err = intParam(c, "count", opts.InvaderCount, 1, maxInvaderCount); err != nil {
		return opts, err
	}
	if opts.Seed, err = seedParam(c); err != nil {
		return opts, err
	}
	return opts, nil
}

func renderPNG(c echo.Context, result *invader.Result, err error) error {
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	if err := invader.Encode(buf, result.Image, "png"); err != nil {
		return err
	}

	c.Response().Header().Set("X-Invader-Seed", strconv.FormatInt(result.Seed, 10))
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// NewServer returns the HTTP API of mgr:
//
//	GET  /api/client       websocket stream
//	GET  /api/state        producer state
//	GET  /api/invader.png  single invader, ?width=&seed=
//	GET  /api/grid.png     grid of invaders, ?width=&count=&seed=
//	POST /api/play, /api/pause, /api/resume, /api/stop
func NewServer(mgr *Manager) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())

	api := e.Group("/api")

	api.GET("/client", func(c echo.Context) error {
		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		defer ws.Close()

		mgr.HandleConn(ws)

		return nil
	})

	api.GET("/state", func(c echo.Context) error {
		return c.JSON(http.StatusOK, mgr.State())
	})

	api.GET("/invader.png", func(c echo.Context) error {
		opts, err := mgr.requestOptions(c)
		if err != nil {
			return err
		}
		result, err := invader.RenderSingle(opts)
		return renderPNG(c, result, err)
	})

	api.GET("/grid.png", func(c echo.Context) error {
		opts, err := mgr.requestOptions(c)
		if err != nil {
			return err
		}
		result, err := invader.RenderGrid(opts)
		return renderPNG(c, result, err)
	})

	control := func(f func() (State, error)) echo.HandlerFunc {
		return func(c echo.Context) error {
			state, err := f()
			if err != nil {
				return echo.NewHTTPError(http.StatusConflict, err.Error())
			}
			return c.JSON(http.StatusOK, state)
		}
	}

	api.POST("/play", control(mgr.Play))
	api.POST("/pause", control(mgr.Pause))
	api.POST("/resume", control(mgr.Resume))
	api.POST("/stop", control(mgr.Stop))

	return e
}
