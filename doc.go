/*
Package ddns keeps a single Cloudflare "A" record pointed at the public IPv4 address of the host it runs on.

Usage will always start with [LoadConfig] and [ddns.New],
which returns a [DDNSClient].
[DDNSClient.RunOnce] performs a single lookup and update,
and [DDNSClient.Run] repeats that on a fixed interval until its context is cancelled.
Additional client configuration options are listed in the docs for New.
*/
package ddns
