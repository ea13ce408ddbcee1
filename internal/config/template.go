package config

// DefaultTemplate is written by GenerateDefault. It must load cleanly.
const DefaultTemplate = `# where configuration

[global]
# Milliseconds to wait for a reply before resending.
timeout = 2000
# Probes sent to a server before it is reported as unreachable.
max_retries = 3
# Show sessions whose process is gone.
include_inactive = true
# Port used when an endpoint has none.
port = 15
# Source column for sessions without a remote host.
source = "Local"

[[server]]
endpoint = "localhost"
label = "local"
failsafe = true

# [[server]]
# endpoint = "host.example.org:15"
# label = "host"
# timeout = 500
# max_retries = 5
# failsafe = false
`
