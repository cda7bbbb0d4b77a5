// Package arch maps between Synology package archs and Gitea platforms.
//
// A Mapping is parsed once from the arch.desc descriptor and then passed by
// pointer to every component that needs it. Lookups from a package arch to a
// platform use substring matching in descriptor order, the same heuristic the
// Synology packaging scripts always used: a short arch can match a longer
// token, which is why inputs shorter than the shortest known arch are
// rejected up front.
package arch
