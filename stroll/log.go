package stroll

import (
	"github.com/sirupsen/logrus"

	atopet "github.com/intx4/Atopet"
)

var Logger *logrus.Logger

func init() {
	Logger = atopet.Logger
}
