package heron

// Version is the current heron release.
const Version = "0.3.0"
