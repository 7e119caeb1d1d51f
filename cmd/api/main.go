package main

import (
	"go.uber.org/fx"

	"github.com/techbantu/gharse/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
