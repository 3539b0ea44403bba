// Package driven defines the outbound ports of the core: the credential
// vault, the identity-provider client, the remote extraction API, the
// interactive auth browser and the config store. Adapters implement these
// interfaces; services depend only on them.
package driven
