package internal

// Version is the build version, set with -ldflags "-X go.vocdoni.io/reserve/internal.Version=..."
var Version = "dev"
