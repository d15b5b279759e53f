package tagbot

// Version is the release version, overridable with -ldflags "-X github.com/aretw0/tagbot.Version=...".
var Version = "0.1.0"
