/*
The sync package implements the client side of simpledfs's sync algorithm.

Files flow in two directions, and each direction has its own trigger.

Pushes happen when a file in the local directory is created or modified. The
watcher calls StoreFile, which locks the file on the server and uploads its
contents and modification time.

Pulls happen on demand. The Engine lists the server's files and fetches every
file that is missing locally or whose local copy is older than the server's.

Fetched files keep the server's modification time, so a file that was just
pulled compares as up to date on the next pull.

Deletions aren't synced in either direction.
*/
package sync
