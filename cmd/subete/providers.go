package main

// Opener blank imports. Each import activates a self-registering vcs adapter.

import (
	_ "github.com/Strob0t/subete/internal/adapter/gitlocal"
)
