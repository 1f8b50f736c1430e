// Package cli is the interactive TaskKeeper terminal client.
//
// App reads commands from a line-oriented REPL and calls the HTTP API
// through client.Client. Passwords are read without echo. Command handlers
// print their own results and errors, so one failed command never ends the
// session.
//
// Commands
//
//	Not logged in:
//	  register, login, status, help, exit | quit
//
//	Logged in:
//	  whoami              show the current account
//	  tasks | ls          list tasks
//	  addtask             create a task (interactive)
//	  done <id>           mark a task completed
//	  rm <id>             delete a task
//	  tag <id> [label...] replace a task's labels
//	  labels              list labels
//	  addlabel <name>     create a label
//	  logout, status, help, exit | quit
package cli
