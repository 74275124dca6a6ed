// Command chatsrv runs text chat relay over TCP.
//
// Clients connect with any line-oriented tool (telnet, nc), claim a unique name
// and every line they send is relayed to all named clients:
//
//	chatsrv 20000
//	nc localhost 20000
//
// Logging and optional websocket endpoint are configured with CHAT_* environment
// variables, which may be placed into .env file in working directory.
// Run with -help to list them.
package main
