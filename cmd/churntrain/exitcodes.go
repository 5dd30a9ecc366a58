package main

// Exit codes read by the training job host.
const (
	ExitSuccess = 0   // job marked Succeeded
	ExitFailure = 255 // job marked Failed, reason in <output>/failure
)
