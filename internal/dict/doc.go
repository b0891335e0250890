// Package dict loads dictionary terms from files, embedded lists and the
// term store, publishes them to a checkers.Dictionary and keeps the tag
// index used to label matches. A Watcher reloads file-backed sources when
// they change on disk.
package dict
