package consumedthing

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
)

// Resolver selects the protocol client for an interaction from its forms.
// One resolver is shared by all interactions of a consumed Thing.
type Resolver struct {
	// ThingName and ThingID identify the Thing in logging and credential lookup
	ThingName string
	ThingID   string
	// Security of the Thing, applied to each new client
	Security []api.SecurityScheme
	Cache    *ClientCache
	Registry api.IClientRegistry
	Metrics  *Metrics
}

// GetClientFor returns a protocol client for one of the forms along with the form to use.
// A form whose scheme already has a cached client wins, even if it is not the first form.
// Otherwise the first form whose scheme the registry supports wins and a new client is
// created, secured and cached for that scheme.
// A new client that rejects the Thing security is stopped and not cached. The interaction
// fails with ErrClientCreation rather than continuing without security, also when the
// transport doesn't support the Thing's only security scheme.
//  forms in order of preference
// Returns ErrNoForms, ErrNoClientFactory or ErrClientCreation if no client is available
func (resolver *Resolver) GetClientFor(forms []api.Form) (api.IProtocolClient, api.Form, error) {
	if len(forms) == 0 {
		logrus.Errorf("Resolver.GetClientFor: Thing '%s' interaction has no forms", resolver.ThingName)
		return nil, api.Form{}, ErrNoForms
	}
	schemes := make([]string, len(forms))
	for i, form := range forms {
		schemes[i] = FormScheme(form)
	}
	for i, scheme := range schemes {
		if client, found := resolver.Cache.Get(scheme); found {
			logrus.Debugf("Resolver.GetClientFor: Thing '%s' chose cached client for '%s'",
				resolver.ThingName, scheme)
			return client, forms[i], nil
		}
	}
	logrus.Debugf("Resolver.GetClientFor: Thing '%s' has no client in cache for %v",
		resolver.ThingName, schemes)

	index := -1
	for i, scheme := range schemes {
		if resolver.Registry.HasClientFor(scheme) {
			index = i
			break
		}
	}
	if index < 0 {
		logrus.Errorf("Resolver.GetClientFor: Thing '%s' has no client factory for %v",
			resolver.ThingName, schemes)
		return nil, api.Form{}, fmt.Errorf("%w: %v", ErrNoClientFactory, schemes)
	}
	scheme := schemes[index]
	client, err := resolver.Cache.GetOrCreate(scheme, func() (api.IProtocolClient, error) {
		return resolver.createClient(scheme)
	})
	if err != nil {
		return nil, api.Form{}, err
	}
	return client, forms[index], nil
}

// createClient obtains a new client from the registry and applies the Thing security
func (resolver *Resolver) createClient(scheme string) (api.IProtocolClient, error) {
	client, err := resolver.Registry.GetClientFor(scheme)
	if err != nil {
		logrus.Errorf("Resolver.createClient: Thing '%s' failed getting client for '%s': %s",
			resolver.ThingName, scheme, err)
		return nil, fmt.Errorf("%w: scheme '%s': %s", ErrClientCreation, scheme, err)
	} else if client == nil {
		logrus.Errorf("Resolver.createClient: Thing '%s' registry returned no client for '%s'",
			resolver.ThingName, scheme)
		return nil, fmt.Errorf("%w: scheme '%s'", ErrClientCreation, scheme)
	}
	logrus.Infof("Resolver.createClient: Thing '%s' got new client for '%s'", resolver.ThingName, scheme)
	if len(resolver.Security) > 0 {
		logrus.Warningf("Resolver.createClient: Thing '%s' applying security metadata", resolver.ThingName)
		credentials := resolver.Registry.GetCredentials(resolver.ThingID)
		err = client.SetSecurity(resolver.Security, credentials)
		if err != nil {
			logrus.Errorf("Resolver.createClient: Thing '%s' client for '%s' rejected security: %s",
				resolver.ThingName, scheme, err)
			client.Stop()
			return nil, fmt.Errorf("%w: scheme '%s': %s", ErrClientCreation, scheme, err)
		}
	}
	resolver.Metrics.clientCreated(scheme)
	return client, nil
}

// FormScheme returns the lower case URI scheme of the form href, or "" if it has none
func FormScheme(form api.Form) string {
	hrefURL, err := url.Parse(form.Href)
	if err != nil {
		idx := strings.Index(form.Href, ":")
		if idx <= 0 {
			return ""
		}
		return strings.ToLower(form.Href[:idx])
	}
	return strings.ToLower(hrefURL.Scheme)
}
